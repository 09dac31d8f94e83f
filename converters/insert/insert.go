// Package insert registers the "sql" output format: a single multi-row INSERT statement.
package insert

import (
	"fmt"
	"io"

	"github.com/darianmavgo/dumpsql/converters"
	"github.com/darianmavgo/dumpsql/converters/common"
)

func init() {
	converters.Register("sql", &insertFormat{})
}

type insertFormat struct{}

// Export writes the statement through the provider's own StreamConverter, which owns
// the literal classification rules.
func (f *insertFormat) Export(provider common.RowProvider, writer io.Writer) error {
	sc, ok := provider.(common.StreamConverter)
	if !ok {
		return fmt.Errorf("provider %T does not support SQL export", provider)
	}
	return sc.ConvertToSQL(writer)
}
