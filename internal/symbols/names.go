package symbols

import (
	"strconv"
	"strings"
)

// IsIndexedName reports names of element views: "foo[3]" or "%foo:3".
// Their storage belongs to the container.
func IsIndexedName(name string) bool {
	if strings.HasPrefix(name, "%") && strings.Contains(name, ":") {
		return true
	}
	open := strings.IndexByte(name, '[')
	return open > 0 && strings.HasSuffix(name, "]")
}

// IsComplexPartName reports names of the shared real or imaginary component
// of a complex value.
func IsComplexPartName(name string) bool {
	return strings.HasSuffix(name, ".real") || strings.HasSuffix(name, ".imag")
}

// ViewName builds the element view name used for base[index].
func ViewName(base string, index uint32) string {
	var sb strings.Builder
	sb.Grow(len(base) + 6)
	sb.WriteString(base)
	sb.WriteByte('[')
	sb.WriteString(strconv.FormatUint(uint64(index), 10))
	sb.WriteByte(']')
	return sb.String()
}

// AliasViewName is the "%name:index" form used for alias elements.
func AliasViewName(base string, index uint32) string {
	return "%" + base + ":" + strconv.FormatUint(uint64(index), 10)
}
