package execution

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"silva/internal/jobconfig"
)

const (
	workflowEnvPrefix = "SILVA_"
	jobEnvPrefix      = "PARAM_"
)

// BuildEnv renders workflow-global and job-local parameters as
// environment variables. Globals are exported as SILVA_<NAME>; the
// PARAM_<NAME> set carries workflow params overridden by job params,
// so a job-local value wins over a same-named global. Names are
// upper-cased; the result is sorted for determinism.
func BuildEnv(workflowParams, jobParams jobconfig.Params) []string {
	env := make([]string, 0, len(workflowParams)*2+len(jobParams))

	for name, value := range workflowParams {
		env = append(env, workflowEnvPrefix+envName(name)+"="+renderValue(value))
	}

	merged := make(jobconfig.Params, len(workflowParams)+len(jobParams))
	for name, value := range workflowParams {
		merged[name] = value
	}
	for name, value := range jobParams {
		merged[name] = value
	}
	for name, value := range merged {
		env = append(env, jobEnvPrefix+envName(name)+"="+renderValue(value))
	}

	sort.Strings(env)
	return env
}

func envName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// renderValue turns a parameter value into its environment string
// form: strings verbatim, booleans true/false, numbers as written,
// arrays and tables as JSON.
func renderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}
