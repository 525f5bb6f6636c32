package domain

import "errors"

var (
	ErrActiveProbe = errors.New("failed to probe the active identity")
)

func IsActiveProbeError(err error) bool {
	return errors.Is(err, ErrActiveProbe)
}
