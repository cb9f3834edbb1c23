package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/lanube360/mirador-lotes/internal/storage"
	"github.com/lanube360/mirador-lotes/pkg/core"
	"gopkg.in/yaml.v3"
)

// VerifiedScene is one scene placement as read back from storage.
type VerifiedScene struct {
	Scene           string  `json:"scene" yaml:"scene"`
	Title           string  `json:"title" yaml:"title"`
	HorizontalAngle float64 `json:"horizontalAngle" yaml:"horizontalAngle"`
	VerticalAngle   float64 `json:"verticalAngle" yaml:"verticalAngle"`
}

// VerifiedParcel is one parcel as read back from storage.
type VerifiedParcel struct {
	ID          string          `json:"id" yaml:"id"`
	DisplayName string          `json:"displayName" yaml:"displayName"`
	Status      string          `json:"status" yaml:"status"`
	TotalArea   float64         `json:"totalArea" yaml:"totalArea"`
	UsableArea  float64         `json:"usableArea" yaml:"usableArea"`
	Scenes      []VerifiedScene `json:"scenes" yaml:"scenes"`
}

// VerifyReport is what a stored project looks like.
type VerifyReport struct {
	Collection   string           `json:"collection" yaml:"collection"`
	ProjectFound bool             `json:"projectFound" yaml:"projectFound"`
	Project      *core.Project    `json:"project,omitempty" yaml:"project,omitempty"`
	ParcelCount  int              `json:"parcelCount" yaml:"parcelCount"`
	Parcels      []VerifiedParcel `json:"parcels" yaml:"parcels"`
}

// Verify reads the project document and every parcel back from store.
// A missing project is reported, not returned as an error.
func Verify(ctx context.Context, store storage.Backend, slug string) (VerifyReport, error) {
	report := VerifyReport{
		Collection: core.CollectionPath(slug, storage.ParcelCollection),
		Parcels:    []VerifiedParcel{},
	}

	project, err := store.GetProject(ctx, slug)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return report, fmt.Errorf("failed to read project: %w", err)
	default:
		report.ProjectFound = true
		report.Project = &project
	}

	parcels, err := store.ListParcels(ctx, slug)
	if err != nil {
		return report, fmt.Errorf("failed to read parcels: %w", err)
	}
	report.ParcelCount = len(parcels)
	for _, p := range parcels {
		report.Parcels = append(report.Parcels, verifiedParcel(p))
	}
	return report, nil
}

func verifiedParcel(p core.ParcelSummary) VerifiedParcel {
	vp := VerifiedParcel{
		ID:          p.ID,
		DisplayName: p.Title(),
		Status:      p.Status,
		TotalArea:   p.TotalArea,
		UsableArea:  p.UsableArea,
		Scenes:      make([]VerifiedScene, 0, len(p.Scenes)),
	}
	for name, sp := range p.Scenes {
		vp.Scenes = append(vp.Scenes, VerifiedScene{
			Scene:           name,
			Title:           sp.Title,
			HorizontalAngle: sp.HorizontalAngle,
			VerticalAngle:   sp.VerticalAngle,
		})
	}
	sort.Slice(vp.Scenes, func(i, j int) bool { return vp.Scenes[i].Scene < vp.Scenes[j].Scene })
	return vp
}

// WriteYAML renders the report as YAML.
func (r VerifyReport) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// WriteText renders the report for a terminal.
func (r VerifyReport) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Collection:\t%s\n", r.Collection)
	if r.ProjectFound {
		p := r.Project
		fmt.Fprintf(tw, "Project:\t%s (%s)\n", p.DisplayName, p.Slug)
		fmt.Fprintf(tw, "Total parcels:\t%d\n", p.TotalParcels)
		fmt.Fprintf(tw, "Structure:\t%s v%s\n", p.Structure, p.Version)
		fmt.Fprintf(tw, "Created:\t%s\n", p.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(tw, "Last run:\t%s\n", p.RunID)
	} else {
		fmt.Fprintf(tw, "Project:\tNOT FOUND\n")
	}
	fmt.Fprintf(tw, "Parcels stored:\t%d\n", r.ParcelCount)
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, p := range r.Parcels {
		fmt.Fprintf(w, "\n%s  %s  [%s]  %.2f m2 / %.2f m2\n", p.ID, p.DisplayName, p.Status, p.TotalArea, p.UsableArea)
		for _, s := range p.Scenes {
			fmt.Fprintf(w, "    %s %q ath=%g atv=%g\n", s.Scene, s.Title, s.HorizontalAngle, s.VerticalAngle)
		}
	}
	return nil
}
