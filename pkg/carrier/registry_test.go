package carrier_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelio/shipbridge/pkg/carrier"
)

// fakeCarrier is a minimal label-only carrier for registry tests.
type fakeCarrier struct {
	name string
}

func (f *fakeCarrier) Name() string                  { return f.name }
func (f *fakeCarrier) RequiredCredentials() []string { return []string{"key"} }
func (f *fakeCarrier) GetLabel(ctx context.Context, origin, destination carrier.Address, packages []carrier.Package, opts carrier.Options) (*carrier.LabelResponse, error) {
	return &carrier.LabelResponse{Success: true}, nil
}

// fakeRater additionally quotes rates, or fails when err is set.
type fakeRater struct {
	fakeCarrier
	rates []carrier.RateEstimate
	err   error
}

func (f *fakeRater) FindRates(ctx context.Context, origin, destination carrier.Address, packages []carrier.Package, opts carrier.Options) (*carrier.RateResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &carrier.RateResponse{Success: true, Rates: f.rates}, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := carrier.NewRegistry()
	registry.Register(&fakeCarrier{name: "ups"})
	registry.Register(&fakeCarrier{name: "endicia"})

	c, err := registry.Get("ups")
	require.NoError(t, err)
	assert.Equal(t, "ups", c.Name())

	_, err = registry.Get("fedex")
	assert.ErrorIs(t, err, carrier.ErrCarrierNotFound)

	assert.Equal(t, 2, registry.Count())
	assert.Equal(t, []string{"endicia", "ups"}, registry.Names())
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	registry := carrier.NewRegistry()
	first := &fakeCarrier{name: "ups"}
	second := &fakeCarrier{name: "ups"}
	registry.Register(first)
	registry.Register(second)

	assert.Equal(t, 1, registry.Count())
	c, err := registry.Get("ups")
	require.NoError(t, err)
	assert.Same(t, second, c)
}

func TestRegistry_All_SortedByName(t *testing.T) {
	registry := carrier.NewRegistry()
	registry.Register(&fakeCarrier{name: "ups"})
	registry.Register(&fakeCarrier{name: "dhlgm"})
	registry.Register(&fakeCarrier{name: "endicia"})

	all := registry.All()
	require.Len(t, all, 3)
	assert.Equal(t, "dhlgm", all[0].Name())
	assert.Equal(t, "endicia", all[1].Name())
	assert.Equal(t, "ups", all[2].Name())
}

func TestRegistry_FindAllRates(t *testing.T) {
	registry := carrier.NewRegistry()
	registry.Register(&fakeRater{
		fakeCarrier: fakeCarrier{name: "ups"},
		rates:       []carrier.RateEstimate{{Carrier: "ups", ServiceName: "UPS Ground", TotalPrice: 10.50}},
	})
	registry.Register(&fakeRater{
		fakeCarrier: fakeCarrier{name: "endicia"},
		err:         errors.New("service unavailable"),
	})
	// A label-only carrier is skipped entirely.
	registry.Register(&fakeCarrier{name: "dhlgm"})

	results, errs := registry.FindAllRates(context.Background(),
		carrier.Address{}, carrier.Address{}, nil, carrier.Options{})

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "UPS Ground", results[0].Rates[0].ServiceName)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "endicia")
	assert.Contains(t, errs[0].Error(), "service unavailable")
}

func TestRegistry_FindAllRates_NoRaters(t *testing.T) {
	registry := carrier.NewRegistry()
	registry.Register(&fakeCarrier{name: "dhlgm"})

	results, errs := registry.FindAllRates(context.Background(),
		carrier.Address{}, carrier.Address{}, nil, carrier.Options{})

	assert.Empty(t, results)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], carrier.ErrCarrierNotFound)
}
