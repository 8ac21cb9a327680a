package crops

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"field-planner/internal/geometry"
)

// Load reads crop patches from a GeoJSON file, or from every *.geojson file
// in a directory. Files that fail to parse are skipped with a log line so one
// bad export cannot take the whole patch set down. Oversized patch outlines
// are simplified and patches fully contained in another patch are dropped.
func Load(path string) ([]Patch, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("crop source %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.geojson"))
		if err != nil {
			return nil, err
		}
		log.Printf("🌾 Loading crop patches from %d GeoJSON files...\n", len(files))
	}

	var patches []Patch
	for _, file := range files {
		loaded, err := loadFile(file)
		if err != nil {
			log.Printf("   ⚠️  Skipping %s: %v\n", filepath.Base(file), err)
			continue
		}
		patches = append(patches, loaded...)
		log.Printf("   ✅ Loaded %d patches from %s\n", len(loaded), filepath.Base(file))
	}

	patches = simplifyPatches(patches)
	patches = dropContained(patches)

	log.Printf("Total crop patches loaded: %d\n", len(patches))
	return patches, nil
}

// loadFile parses one GeoJSON feature collection into patches. Polygon and
// MultiPolygon outer rings are used; holes and other geometry types are
// ignored. The crop name comes from the "crop" property when present.
func loadFile(file string) ([]Patch, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}

	var patches []Patch
	for _, f := range fc.Features {
		crop, _ := f.Properties["crop"].(string)
		if crop == "" {
			crop = "unknown"
		}

		switch geom := f.Geometry.(type) {
		case orb.Polygon:
			if len(geom) > 0 {
				patches = append(patches, Patch{Crop: crop, Bounds: fromRing(geom[0])})
			}
		case orb.MultiPolygon:
			for _, poly := range geom {
				if len(poly) > 0 {
					patches = append(patches, Patch{Crop: crop, Bounds: fromRing(poly[0])})
				}
			}
		}
	}
	return patches, nil
}

// fromRing converts an orb ring to a patch outline, dropping the closing
// duplicate vertex.
func fromRing(ring orb.Ring) geometry.Polygon {
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		ring = ring[:n-1]
	}
	vertices := make([]geometry.Point, len(ring))
	for i, p := range ring {
		vertices[i] = geometry.Point{X: p.X(), Y: p.Y()}
	}
	return geometry.Polygon{Vertices: vertices}
}

// simplifyPatches reduces patch outlines when the batch carries enough
// vertices for simplification to pay off.
func simplifyPatches(patches []Patch) []Patch {
	total := 0
	for _, p := range patches {
		total += len(p.Bounds.Vertices)
	}
	if total == 0 {
		return patches
	}

	epsilon := geometry.EstimateEpsilon(total)
	simplified := 0
	for i, p := range patches {
		before := len(p.Bounds.Vertices)
		patches[i].Bounds = geometry.SimplifyPolygon(p.Bounds, epsilon)
		simplified += before - len(patches[i].Bounds.Vertices)
	}
	if simplified > 0 {
		log.Printf("   Simplified patch outlines: %d of %d vertices removed (epsilon %.2f)\n",
			simplified, total, epsilon)
	}
	return patches
}

// dropContained removes patches fully contained in another patch. Containment
// is checked bounding box first, then vertex by vertex.
func dropContained(patches []Patch) []Patch {
	if len(patches) <= 1 {
		return patches
	}

	contained := make([]bool, len(patches))
	for i := range patches {
		if contained[i] {
			continue
		}
		for j := range patches {
			if i == j || contained[j] {
				continue
			}
			if isContainedIn(patches[i], patches[j]) {
				contained[i] = true
				break
			}
			if isContainedIn(patches[j], patches[i]) {
				contained[j] = true
			}
		}
	}

	kept := make([]Patch, 0, len(patches))
	for i, p := range patches {
		if !contained[i] {
			kept = append(kept, p)
		}
	}
	if dropped := len(patches) - len(kept); dropped > 0 {
		log.Printf("   Dropped %d contained patches\n", dropped)
	}
	return kept
}

// isContainedIn reports whether patch a lies fully inside patch b.
func isContainedIn(a, b Patch) bool {
	if len(a.Bounds.Vertices) == 0 || len(b.Bounds.Vertices) == 0 {
		return false
	}

	boxA, boxB := a.Bounds.Bound(), b.Bounds.Bound()
	if boxA.MinX < boxB.MinX || boxA.MaxX > boxB.MaxX ||
		boxA.MinY < boxB.MinY || boxA.MaxY > boxB.MaxY {
		return false
	}

	for _, v := range a.Bounds.Vertices {
		if !b.Bounds.Contains(v) {
			return false
		}
	}
	return true
}
