package orchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cory-johannsen/mapseed/internal/blob"
	"github.com/cory-johannsen/mapseed/internal/generate"
	"github.com/cory-johannsen/mapseed/internal/imagegen"
	"github.com/cory-johannsen/mapseed/internal/mapspec"
	"github.com/cory-johannsen/mapseed/internal/tactical"
)

var errService = errors.New("service unavailable")

var fixedNow = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// result returns a valid all-fill grid with one single-cell region per id.
func result(fill tactical.Tile, regionIDs ...string) tactical.Result {
	cells := make([]tactical.Tile, tactical.CellCount)
	for i := range cells {
		cells[i] = fill
	}
	regions := make([]tactical.Region, 0, len(regionIDs))
	for i, id := range regionIDs {
		regions = append(regions, tactical.Region{ID: id, Name: id, Type: tactical.RegionCustom, Cells: []int{i}})
	}
	return tactical.Result{
		Grid:       tactical.TileGrid{Encoding: tactical.EncodingExtended, Cells: cells},
		Regions:    regions,
		Confidence: tactical.ConfidenceHigh,
	}
}

type fakeText struct {
	result tactical.Result
	err    error
	cost   float64
	calls  int
}

func (f *fakeText) Generate(_ context.Context, _ mapspec.MapSpec) (generate.Generation, error) {
	f.calls++
	if f.err != nil {
		return generate.Generation{Cost: f.cost, Attempts: 3}, f.err
	}
	return generate.Generation{Result: f.result, Cost: f.cost, Attempts: 1}, nil
}

type fakeVision struct {
	result tactical.Result
	err    error
	cost   float64
	calls  int
	seen   []byte
}

func (f *fakeVision) Analyze(_ context.Context, _ mapspec.MapSpec, img imagegen.Image) (generate.Generation, error) {
	f.calls++
	f.seen = img.Data
	if f.err != nil {
		return generate.Generation{Cost: f.cost}, f.err
	}
	return generate.Generation{Result: f.result, Cost: f.cost, Attempts: 1}, nil
}

type fakeImages struct {
	data  []byte
	err   error
	cost  float64
	calls int
}

func (f *fakeImages) Render(_ context.Context, _ mapspec.MapSpec) (generate.ImageGeneration, error) {
	f.calls++
	if f.err != nil {
		return generate.ImageGeneration{Attempts: 1}, f.err
	}
	return generate.ImageGeneration{
		Image:    imagegen.Image{Data: f.data, MIMEType: "image/png", Cost: f.cost},
		Cost:     f.cost,
		Attempts: 1,
	}, nil
}

const blobBase = "https://blobs.test/bucket"

type fakeBlobs struct {
	objects   map[string][]byte
	uploadErr error
	uploads   int
	downloads int
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (b *fakeBlobs) Upload(_ context.Context, path string, data []byte, _ string) (string, error) {
	b.uploads++
	if b.uploadErr != nil {
		return "", blob.UploadError(path, b.uploadErr)
	}
	b.objects[path] = data
	return blobBase + "/" + path, nil
}

func (b *fakeBlobs) Download(_ context.Context, path string) ([]byte, error) {
	b.downloads++
	data, ok := b.objects[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", blob.ErrNotFound, path)
	}
	return data, nil
}

func (b *fakeBlobs) PathFromURL(url string) (string, bool) {
	return blob.TrimBaseURL(blobBase, url)
}
