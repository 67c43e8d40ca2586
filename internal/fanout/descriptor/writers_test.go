package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

func TestCondorArguments(t *testing.T) {
	tests := map[string]struct {
		args     []string
		expected string
	}{
		"plain": {
			args:     []string{"a.py", "/in/cat0.jpg", "/out"},
			expected: "a.py /in/cat0.jpg /out",
		},
		"whitespace": {
			args:     []string{"a.py", "/in/my cat.jpg", "/out"},
			expected: `"a.py '/in/my cat.jpg' /out"`,
		},
		"quotes": {
			args:     []string{`say "hi"`, "it's"},
			expected: `"'say ""hi""' 'it''s'"`,
		},
		"empty argument": {
			args:     []string{"a.py", ""},
			expected: `"a.py ''"`,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, condorArguments(tc.args))
		})
	}
}

func TestYamlWriter(t *testing.T) {
	d := &JobDescriptor{
		Index:        2,
		Command:      "/bin/worker",
		Args:         []string{"/in/0.jpg", "/out"},
		StdoutSink:   "/logs/job_2.out",
		StderrSink:   "/logs/job_2.err",
		LogSink:      "/logs/job_2.log",
		Resources:    map[string]string{"cpus": "1"},
		NumItems:     1,
		ArtifactPath: "/jobs/job_2.yaml",
	}
	body, err := YamlWriter{}.Render(d)
	require.NoError(t, err)

	decoded := &JobDescriptor{}
	require.NoError(t, yaml.Unmarshal(body, decoded))
	assert.Equal(t, d.Args, decoded.Args)
	assert.Equal(t, d.Resources, decoded.Resources)
	assert.Empty(t, decoded.ArtifactPath)
	assert.Contains(t, string(body), "command: /bin/worker\n")
}

func TestWriterFor(t *testing.T) {
	w, err := WriterFor("condor")
	require.NoError(t, err)
	assert.Equal(t, "sub", w.Extension())

	w, err = WriterFor("yaml")
	require.NoError(t, err)
	assert.Equal(t, "yaml", w.Extension())

	_, err = WriterFor("json")
	assert.Error(t, err)
}
