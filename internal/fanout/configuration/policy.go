package configuration

import (
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/parallelproc/fanout/internal/common/fanouterrors"
	"github.com/parallelproc/fanout/internal/fanout/submitter"
)

// EmptyRangePolicy decides what happens when there are fewer items than jobs.
type EmptyRangePolicy string

const (
	// SubmitEmpty submits jobs with empty ranges as no-op jobs receiving only the output directory.
	SubmitEmpty EmptyRangePolicy = "submit"
	// RejectEmpty fails the run before any side effect.
	RejectEmpty EmptyRangePolicy = "reject"
)

func ParseEmptyRangePolicy(s string) (EmptyRangePolicy, error) {
	switch EmptyRangePolicy(strings.ToLower(s)) {
	case "", SubmitEmpty:
		return SubmitEmpty, nil
	case RejectEmpty:
		return RejectEmpty, nil
	default:
		return "", errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "emptyRangePolicy",
			Value:   s,
			Message: "must be one of submit or reject",
		})
	}
}

func FailurePolicyHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(submitter.Continue) {
			return data, nil
		}
		return submitter.ParseFailurePolicy(data.(string))
	}
}

func EmptyRangePolicyHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(SubmitEmpty) {
			return data, nil
		}
		return ParseEmptyRangePolicy(data.(string))
	}
}

// DecodeHooks keeps viper's default string conversions and adds the policy parsers.
var DecodeHooks = mapstructure.ComposeDecodeHookFunc(
	mapstructure.StringToTimeDurationHookFunc(),
	mapstructure.StringToSliceHookFunc(","),
	FailurePolicyHookFunc(),
	EmptyRangePolicyHookFunc(),
)
