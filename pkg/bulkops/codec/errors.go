package codec

import (
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/exception"
)

// newFormatError builds the strict-arity decode failure for a compound
// field. It carries the actual vs expected token counts.
func newFormatError(fieldName string, actual, expected int) error {
	return exception.NewFormatError(moduleName, fieldName, actual, expected)
}

// escape strips the non-printing delimiter marker from a field value before
// encoding. The marker never legitimately appears in catalog text, so this
// only defuses crafted values that would otherwise shift token boundaries.
func escape(value string) string {
	out := make([]rune, 0, len(value))
	for _, r := range value {
		if r == '\u001f' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
