package calls

import "time"

const (
	StatusCompleted  = "completed"
	StatusMissed     = "missed"
	StatusInProgress = "in_progress"
)

type Call struct {
	ID           string
	Caller       string
	Number       string
	Status       string
	StartedTS    int64
	DurationSecs int64
	MessageCount int
	Preview      string
}

type Message struct {
	ID      int64
	CallID  string
	Seq     int
	Role    string
	Content string
	TS      int64
}

func FormatUnix(ts int64) string {
	if ts <= 0 {
		return "n/a"
	}
	return time.Unix(ts, 0).Local().Format("2006-01-02 15:04")
}

func FormatDuration(secs int64) string {
	if secs <= 0 {
		return "--:--"
	}
	return time.Unix(secs, 0).UTC().Format("04:05")
}
