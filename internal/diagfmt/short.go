package diagfmt

import (
	"fmt"
	"io"

	"qasm3/internal/diag"
	"qasm3/internal/source"
)

// Short writes one line per diagnostic, path:line:col: SEVERITY CODE message.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, includeNotes bool) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, diag.FormatShortDiagnostics(bag.Items(), fs, includeNotes))
	return err
}
