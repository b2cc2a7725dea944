package domain

import "time"

// Clock é a única fonte de "agora" do throttle.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
