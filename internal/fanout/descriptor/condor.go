package descriptor

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

var condorSubmitTemplate = template.Must(template.New("condor").Parse(
	`executable = {{.Command}}
arguments = {{.Arguments}}
output = {{.StdoutSink}}
error = {{.StderrSink}}
log = {{.LogSink}}
{{- range .Requests}}
request_{{.Name}} = {{.Value}}
{{- end}}
queue
`))

type condorRequest struct {
	Name  string
	Value string
}

type condorSubmit struct {
	*JobDescriptor
	Arguments string
	Requests  []condorRequest
}

// CondorWriter renders HTCondor submit description files.
type CondorWriter struct{}

func (CondorWriter) Extension() string {
	return "sub"
}

func (CondorWriter) Render(d *JobDescriptor) ([]byte, error) {
	submit := condorSubmit{JobDescriptor: d, Arguments: condorArguments(d.Args)}
	for _, name := range d.ResourceNames() {
		submit.Requests = append(submit.Requests, condorRequest{Name: name, Value: d.Resources[name]})
	}
	var buf bytes.Buffer
	if err := condorSubmitTemplate.Execute(&buf, submit); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

// condorArguments joins args with spaces. If any argument holds whitespace or quotes, it switches to
// the quoted syntax: the whole value in double quotes, arguments with whitespace in single quotes and
// embedded quotes doubled.
func condorArguments(args []string) string {
	plain := true
	for _, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t'\"") {
			plain = false
			break
		}
	}
	if plain {
		return strings.Join(args, " ")
	}
	quoted := make([]string, len(args))
	for i, arg := range args {
		arg = strings.ReplaceAll(arg, `"`, `""`)
		if arg == "" || strings.ContainsAny(arg, " \t'") {
			arg = "'" + strings.ReplaceAll(arg, "'", "''") + "'"
		}
		quoted[i] = arg
	}
	return `"` + strings.Join(quoted, " ") + `"`
}
