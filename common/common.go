package common

const (
	ServiceName = "pagegen"

	Version = "0.2.1"
)
