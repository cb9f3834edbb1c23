// Package catalog implements the admin operations on a project's parcels.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lanube360/mirador-lotes/internal/storage"
	"github.com/lanube360/mirador-lotes/pkg/core"
)

var (
	ErrParcelNotFound  = errors.New("parcel not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidStatus   = errors.New("invalid parcel status")
	ErrInvalidUpdate   = errors.New("invalid parcel update")
)

// EventParcelUpdated is the type of events published after an update.
const EventParcelUpdated = "parcel.updated"

// ParcelEvent is published to subscribers after a parcel changes.
type ParcelEvent struct {
	Type    string             `json:"type"`
	Project string             `json:"project"`
	Parcel  core.ParcelSummary `json:"parcel"`
	At      time.Time          `json:"at"`
}

// Stats counts parcels per status. Every known status is present, possibly zero.
type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}

// ScenePin is a parcel hotspot inside one panorama scene.
type ScenePin struct {
	ParcelID    string              `json:"parcelId"`
	DisplayName string              `json:"displayName"`
	Status      core.StatusInfo     `json:"status"`
	Placement   core.ScenePlacement `json:"placement"`
}

// Service serves one project's parcels out of a storage backend.
type Service struct {
	store   storage.Backend
	project string
	log     *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	subs   map[int]chan ParcelEvent
	nextID int
}

// NewService creates a catalog over the given project.
func NewService(store storage.Backend, project string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		project: project,
		log:     logger,
		now:     time.Now,
		subs:    make(map[int]chan ParcelEvent),
	}
}

// ProjectSlug returns the project this catalog serves.
func (s *Service) ProjectSlug() string {
	return s.project
}

// Project returns the project document.
func (s *Service) Project(ctx context.Context) (core.Project, error) {
	p, err := s.store.GetProject(ctx, s.project)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, s.project)
	}
	return p, err
}

// List returns parcels sorted by number, filtered by a case-insensitive match of
// query against ID, name and status. An empty query matches everything.
func (s *Service) List(ctx context.Context, query string) ([]core.ParcelSummary, error) {
	parcels, err := s.store.ListParcels(ctx, s.project)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(parcels, func(i, j int) bool {
		return parcels[i].Number < parcels[j].Number
	})

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return parcels, nil
	}
	out := parcels[:0]
	for _, p := range parcels {
		if matches(p, q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func matches(p core.ParcelSummary, q string) bool {
	return strings.Contains(strings.ToLower(p.ID), q) ||
		strings.Contains(strings.ToLower(p.Title()), q) ||
		strings.Contains(strings.ToLower(p.Status), q)
}

// Get returns one parcel.
func (s *Service) Get(ctx context.Context, id string) (core.ParcelSummary, error) {
	p, err := s.store.GetParcel(ctx, s.project, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.ParcelSummary{}, fmt.Errorf("%w: %s", ErrParcelNotFound, id)
	}
	return p, err
}

// Update validates u, applies it and notifies subscribers.
func (s *Service) Update(ctx context.Context, id string, u core.ParcelUpdate) (core.ParcelSummary, error) {
	if err := checkUpdate(u); err != nil {
		return core.ParcelSummary{}, err
	}

	p, err := s.store.UpdateParcel(ctx, s.project, id, u, s.now().UTC())
	if errors.Is(err, storage.ErrNotFound) {
		return core.ParcelSummary{}, fmt.Errorf("%w: %s", ErrParcelNotFound, id)
	}
	if err != nil {
		return core.ParcelSummary{}, err
	}

	s.log.Info("Parcel updated", "project", s.project, "parcel", id, "status", p.Status)
	s.publish(ParcelEvent{
		Type:    EventParcelUpdated,
		Project: s.project,
		Parcel:  p,
		At:      *p.ModifiedAt,
	})
	return p, nil
}

func checkUpdate(u core.ParcelUpdate) error {
	if u.Status != nil && !core.IsKnownStatus(*u.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *u.Status)
	}
	if u.DisplayName != nil && strings.TrimSpace(*u.DisplayName) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidUpdate)
	}
	for name, v := range map[string]*float64{
		"totalArea":  u.TotalArea,
		"usableArea": u.UsableArea,
		"price":      u.Price,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: negative %s", ErrInvalidUpdate, name)
		}
	}
	return nil
}

// Stats counts parcels per status.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	parcels, err := s.store.ListParcels(ctx, s.project)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{ByStatus: make(map[string]int, len(core.Statuses))}
	for _, info := range core.Statuses {
		st.ByStatus[info.Value] = 0
	}
	for _, p := range parcels {
		st.Total++
		st.ByStatus[p.Status]++
	}
	return st, nil
}

// ScenePins returns the hotspots of every parcel placed in scene, sorted by parcel number.
func (s *Service) ScenePins(ctx context.Context, scene string) ([]ScenePin, error) {
	parcels, err := s.List(ctx, "")
	if err != nil {
		return nil, err
	}
	pins := []ScenePin{}
	for _, p := range parcels {
		placement, ok := p.Scenes[scene]
		if !ok {
			continue
		}
		pins = append(pins, ScenePin{
			ParcelID:    p.ID,
			DisplayName: p.Title(),
			Status:      core.StatusInfoFor(p.Status),
			Placement:   placement,
		})
	}
	return pins, nil
}

// Subscribe registers for parcel events. Events are dropped for a subscriber whose
// buffer is full. The returned func unsubscribes and closes the channel.
func (s *Service) Subscribe(buffer int) (<-chan ParcelEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan ParcelEvent, buffer)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Service) publish(ev ParcelEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.Warn("Dropping parcel event for slow subscriber", "subscriber", id, "parcel", ev.Parcel.ID)
		}
	}
}
