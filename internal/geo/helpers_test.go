package geo

import "github.com/rs/zerolog"

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
