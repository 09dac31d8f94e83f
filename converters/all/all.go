package all

import (
	// Import all the output formats so they register themselves
	_ "github.com/darianmavgo/dumpsql/converters/csv"
	_ "github.com/darianmavgo/dumpsql/converters/excel"
	_ "github.com/darianmavgo/dumpsql/converters/insert"
	_ "github.com/darianmavgo/dumpsql/converters/json"
	_ "github.com/darianmavgo/dumpsql/converters/sqlite"
)
