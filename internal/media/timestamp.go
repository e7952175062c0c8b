package media

import (
	"regexp"
	"time"
)

// Console capture filenames embed a timestamp either as 14 compact digits
// ("Elden Ring_20240301120000.jpg") or separated
// ("2024-03-01_12-00-00.jpg").
var (
	compactTimestampRE   = regexp.MustCompile(`(\d{14})`)
	separatedTimestampRE = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})[_T](\d{2})-(\d{2})-(\d{2})`)
)

const compactTimestampLayout = "20060102150405"

// TimestampFromFilename extracts an encoded capture timestamp from a filename.
// Returns false when none is present or the digits do not form a valid time.
func TimestampFromFilename(name string) (time.Time, bool) {
	if match := compactTimestampRE.FindString(name); match != "" {
		if ts, err := time.ParseInLocation(compactTimestampLayout, match, time.Local); err == nil {
			return ts, true
		}
	}
	if groups := separatedTimestampRE.FindStringSubmatch(name); groups != nil {
		compact := groups[1] + groups[2] + groups[3] + groups[4] + groups[5] + groups[6]
		if ts, err := time.ParseInLocation(compactTimestampLayout, compact, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ClipFolderTimestamp parses the date/time halves of a Steam clip folder name
// ("clip_<appid>_<YYYYMMDD>_<HHMMSS>").
func ClipFolderTimestamp(date, clock string) (time.Time, bool) {
	ts, err := time.ParseInLocation("20060102_150405", date+"_"+clock, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
