package network

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"adhocnet/internal/geometry"
	"adhocnet/internal/model"
)

var validate = validator.New()

type areaInput struct {
	Name   string    `json:"name"`
	Center []float64 `json:"center" validate:"required,len=2"`
	Radius float64   `json:"radius" validate:"gt=0"`
	IsHub  bool      `json:"is_hub"`
}

// ErrDuplicateArea is returned when two interest areas share a name.
var ErrDuplicateArea = errors.New("duplicate interest area name")

// LoadAreas decodes a JSON array of interest areas. Hubs get the names HUB_n
// in file order, skipping names already used by other areas; other unnamed
// areas get a short random name. Area names are unique in the result.
func LoadAreas(r io.Reader) ([]*model.InterestArea, error) {
	var inputs []areaInput
	if err := json.NewDecoder(r).Decode(&inputs); err != nil {
		return nil, fmt.Errorf("decode interest areas: %w", err)
	}
	if len(inputs) == 0 {
		return nil, errors.New("interest area list is empty")
	}

	taken := make(map[string]struct{}, len(inputs))
	for i, in := range inputs {
		if err := validate.Struct(in); err != nil {
			return nil, fmt.Errorf("interest area %d: %w", i, err)
		}
		if in.IsHub || in.Name == "" {
			continue
		}
		if _, ok := taken[in.Name]; ok {
			return nil, fmt.Errorf("interest area %d: %w: %s", i, ErrDuplicateArea, in.Name)
		}
		taken[in.Name] = struct{}{}
	}

	areas := make([]*model.InterestArea, 0, len(inputs))
	hubs := 0
	for _, in := range inputs {
		area := &model.InterestArea{
			Name:   in.Name,
			Center: geometry.Point{X: in.Center[0], Y: in.Center[1]},
			Radius: in.Radius,
			IsHub:  in.IsHub,
		}
		switch {
		case area.IsHub:
			area.Name = freeName(taken, func() string {
				name := fmt.Sprintf("HUB_%d", hubs)
				hubs++
				return name
			})
		case area.Name == "":
			area.Name = freeName(taken, func() string { return uuid.NewString()[:6] })
		}
		areas = append(areas, area)
	}
	return areas, nil
}

// freeName draws names until one is not in taken, then records it.
func freeName(taken map[string]struct{}, next func() string) string {
	for {
		name := next()
		if _, ok := taken[name]; !ok {
			taken[name] = struct{}{}
			return name
		}
	}
}

func LoadAreasFile(path string) ([]*model.InterestArea, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open interest areas: %w", err)
	}
	defer f.Close()
	areas, err := LoadAreas(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return areas, nil
}

func SaveAreas(w io.Writer, areas []*model.InterestArea) error {
	records := make([]model.InterestAreaRecord, 0, len(areas))
	for _, area := range areas {
		records = append(records, area.Record())
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode interest areas: %w", err)
	}
	return nil
}

type GenerateOptions struct {
	Amount       int        `validate:"gt=0"`
	XLim         [2]float64 `validate:"-"`
	YLim         [2]float64 `validate:"-"`
	AllowOverlap bool
	MaxAttempts  int `validate:"gte=0"`
}

func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Amount:      10,
		XLim:        [2]float64{0, 10},
		YLim:        [2]float64{0, 10},
		MaxAttempts: 10000,
	}
}

// GenerateAreas scatters random interest areas with radius in [0.3, 0.5)
// and centers at least one unit inside the limits. One random area is
// turned into the hub.
func GenerateAreas(rng *rand.Rand, opts GenerateOptions) ([]*model.InterestArea, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("generate options: %w", err)
	}
	width := opts.XLim[1] - opts.XLim[0] - 2
	height := opts.YLim[1] - opts.YLim[0] - 2
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("limits %v x %v leave no room for areas", opts.XLim, opts.YLim)
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = DefaultGenerateOptions().MaxAttempts
	}

	areas := make([]*model.InterestArea, 0, opts.Amount)
	for attempts := 0; len(areas) < opts.Amount; attempts++ {
		if attempts >= maxAttempts {
			return nil, fmt.Errorf("placed %d of %d areas after %d attempts", len(areas), opts.Amount, attempts)
		}
		candidate := &model.InterestArea{
			Name: fmt.Sprintf("IA-%d", len(areas)),
			Center: geometry.Point{
				X: opts.XLim[0] + 1 + width*rng.Float64(),
				Y: opts.YLim[0] + 1 + height*rng.Float64(),
			},
			Radius: 0.3 + 0.2*rng.Float64(),
		}
		if !opts.AllowOverlap && overlapsAny(candidate, areas) {
			continue
		}
		areas = append(areas, candidate)
	}
	hub := areas[rng.Intn(len(areas))]
	hub.IsHub = true
	hub.Name = "HUB"
	return areas, nil
}

func overlapsAny(candidate *model.InterestArea, areas []*model.InterestArea) bool {
	c := candidate.Circle()
	for _, area := range areas {
		if c.Intersects(area.Circle()) {
			return true
		}
	}
	return false
}
