package memory

import "time"

func defaultClock() int64 {
	return time.Now().Unix()
}
