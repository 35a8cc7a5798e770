package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeParsing(t *testing.T) {
	assert := assert.New(t)

	good := []string{
		"2023-07-19T21:54:14.165300Z",
		"2023-07-19T21:54:14.163Z",
		"2023-07-19T21:52:02.000+00:00",
		"2023-07-19T21:52:02.123456+00:00",
		"2023-09-13T11:23:33+09:00",
		"2023-09-13T11:23",
		"2023-09-13 11:23",
	}
	for _, g := range good {
		ts, err := ParseTimestamp(g)
		assert.NoError(err, g)
		assert.Equal(time.UTC, ts.Location(), g)
	}

	ts, err := ParseTimestamp("2023-09-13T11:23:33+09:00")
	assert.NoError(err)
	assert.Equal(time.Date(2023, 9, 13, 2, 23, 33, 0, time.UTC), ts)

	bad := []string{
		"",
		"yesterday",
		"2023-09-13",
		"13/09/2023 11:23",
	}
	for _, b := range bad {
		_, err := ParseTimestamp(b)
		assert.Error(err, b)
	}
}
