package internal

import (
	"fmt"
	"io"
	"time"

	_ "code.cloudfoundry.org/go-diodes" // import for lockless writing
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
)

// CreateDefaultLogger creates the console logger used by the amqplua command. Writes
// go through a diode so that logging from connection cleanups never blocks on out.
// The returned closer flushes and stops the diode.
func CreateDefaultLogger(level zerolog.Level, out io.Writer) (zerolog.Logger, io.Closer) {
	wr := diode.NewWriter(out, 1000, 10*time.Millisecond, func(missed int) {
		_, _ = fmt.Fprintf(out, "Logger Dropped %d messages\n", missed)
	})
	logger := zerolog.New(zerolog.ConsoleWriter{Out: wr, NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, wr
}
