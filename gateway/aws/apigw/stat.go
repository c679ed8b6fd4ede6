package apigw

import (
	"github.com/viant/gmetric/counter"
)

const (
	//MetricName gateway operation counter name
	MetricName = "gateway"

	ErrorKey         = "error"
	NotFoundKey      = "notFound"
	UnauthorizedKey  = "unauthorized"
	FunctionErrorKey = "functionError"
)

type stats struct{}

func (p stats) Keys() []string {
	return []string{
		ErrorKey,
		NotFoundKey,
		UnauthorizedKey,
		FunctionErrorKey,
	}
}

func (p stats) Map(value interface{}) int {
	if value == nil {
		return -1
	}
	if _, ok := value.(error); ok {
		return 0
	}
	switch value {
	case ErrorKey:
		return 0
	case NotFoundKey:
		return 1
	case UnauthorizedKey:
		return 2
	case FunctionErrorKey:
		return 3
	}
	return -1
}

func newStats() counter.Provider {
	return &stats{}
}
