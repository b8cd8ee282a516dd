package http

import (
	_ "embed"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var rawSpec []byte

var (
	specOnce sync.Once
	spec     *openapi3.T
	specErr  error
)

// GetSwagger returns the parsed API description.
func GetSwagger() (*openapi3.T, error) {
	specOnce.Do(func() {
		spec, specErr = openapi3.NewLoader().LoadFromData(rawSpec)
	})
	return spec, specErr
}
