package descriptor

import (
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// YamlWriter renders descriptors as YAML documents, for schedulers that take a structured payload.
// Map keys are emitted in sorted order, so output is deterministic.
type YamlWriter struct{}

func (YamlWriter) Extension() string {
	return "yaml"
}

func (YamlWriter) Render(d *JobDescriptor) ([]byte, error) {
	out, err := yaml.Marshal(d)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return out, nil
}

// WriterFor returns the artifact writer registered under name.
func WriterFor(name string) (ArtifactWriter, error) {
	switch name {
	case "", "condor":
		return CondorWriter{}, nil
	case "yaml":
		return YamlWriter{}, nil
	default:
		return nil, errors.Errorf("unknown artifact format %q", name)
	}
}
