package version

import (
	"fmt"
	"runtime"
	"strings"
)

// SDKVersion is the version of this module.
const SDKVersion = "1.0.0"

// UserAgent identifies the SDK and Go runtime on every request.
func UserAgent() string {
	goVersion := strings.TrimPrefix(runtime.Version(), "go")
	return fmt.Sprintf("AssemblyAI/1.0 (sdk=Go/%s runtime_env=Go/%s)", SDKVersion, goVersion)
}
