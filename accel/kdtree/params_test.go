package kdtree

import (
	"errors"
	"testing"
)

func TestParseBuildParams(t *testing.T) {
	type spec struct {
		input     string
		expErr    error
		expParams BuildParams
	}

	defaults := DefaultBuildParams()
	custom := defaults
	custom.SplitPlane = SplitMedian
	custom.SplitAxis = AxisLongestExtent
	custom.MinPrimitives = 8
	custom.MaxDepth = 16
	custom.EmptyBias = 0.8
	custom.TraversalCost = 2
	custom.ThreadHint = 4
	custom.PostCompress = true

	specs := []spec{
		{`{}`, nil, defaults},
		{
			`{"splitPlaneType": "median", "splitAxisType": "LongestExtent", "minPrimitives": 8, "maxDepth": 16, "emptyBias": 0.8, "traversalCost": 2, "threadHint": 4, "postCompress": true}`,
			nil,
			custom,
		},
		{`{"splitPlaneType": "bsp"}`, ErrInvalidParams, defaults},
		{`{"splitAxisType": "diagonal"}`, ErrInvalidParams, defaults},
		{`{"maxDepth": 25}`, ErrInvalidParams, defaults},
		{`{"maxDepth": 0}`, ErrInvalidParams, defaults},
		{`{"minPrimitives": 0}`, ErrInvalidParams, defaults},
		{`{"emptyBias": 0}`, ErrInvalidParams, defaults},
		{`{"leafSize": 4}`, ErrInvalidParams, defaults},
		{`not json`, ErrInvalidParams, defaults},
	}

	for index, s := range specs {
		params, err := ParseBuildParams([]byte(s.input))
		if s.expErr != nil {
			if !errors.Is(err, s.expErr) {
				t.Errorf("[spec %d] expected error %v; got %v", index, s.expErr, err)
			}
			continue
		}

		if err != nil {
			t.Errorf("[spec %d] unexpected error: %v", index, err)
			continue
		}
		if params != s.expParams {
			t.Errorf("[spec %d] expected params %+v; got %+v", index, s.expParams, params)
		}
	}
}

func TestMethodNames(t *testing.T) {
	for m := SplitMiddle; m <= SplitSAH; m++ {
		text, _ := m.MarshalText()
		parsed, err := ParseSplitPlaneMethod(string(text))
		if err != nil || parsed != m {
			t.Errorf("expected %q to parse as %d; got %d (err: %v)", text, m, parsed, err)
		}
	}

	for m := AxisRoundRobin; m <= AxisLongestExtent; m++ {
		text, _ := m.MarshalText()
		parsed, err := ParseSplitAxisMethod(string(text))
		if err != nil || parsed != m {
			t.Errorf("expected %q to parse as %d; got %d (err: %v)", text, m, parsed, err)
		}
	}

	if _, err := ParseSplitPlaneMethod("octree"); !errors.Is(err, ErrUnknownSetting) {
		t.Errorf("expected ErrUnknownSetting; got %v", err)
	}
}

func TestValidateBuildParams(t *testing.T) {
	params := DefaultBuildParams()
	if err := params.Validate(); err != nil {
		t.Fatalf("expected default params to be valid; got %v", err)
	}

	params.SplitPlane = SplitSAH + 1
	if err := params.Validate(); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams; got %v", err)
	}
}
