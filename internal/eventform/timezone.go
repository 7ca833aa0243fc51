package eventform

import "strings"

// DefaultTimezoneOffset applies when the draft has no timezone or one the
// table does not know.
const DefaultTimezoneOffset = "+06:00"

// timezoneOffsets is a fixed lookup; offsets are standard time and ignore DST.
var timezoneOffsets = map[string]string{
	"Asia/Dhaka":          "+06:00",
	"Asia/Kolkata":        "+05:30",
	"Asia/Karachi":        "+05:00",
	"Asia/Kathmandu":      "+05:45",
	"Asia/Dubai":          "+04:00",
	"Asia/Bangkok":        "+07:00",
	"Asia/Jakarta":        "+07:00",
	"Asia/Singapore":      "+08:00",
	"Asia/Kuala_Lumpur":   "+08:00",
	"Asia/Shanghai":       "+08:00",
	"Asia/Hong_Kong":      "+08:00",
	"Asia/Tokyo":          "+09:00",
	"Asia/Seoul":          "+09:00",
	"Australia/Sydney":    "+10:00",
	"Pacific/Auckland":    "+12:00",
	"Europe/London":       "+00:00",
	"Europe/Paris":        "+01:00",
	"Europe/Berlin":       "+01:00",
	"Europe/Istanbul":     "+03:00",
	"Europe/Moscow":       "+03:00",
	"Africa/Cairo":        "+02:00",
	"Africa/Nairobi":      "+03:00",
	"Africa/Lagos":        "+01:00",
	"America/New_York":    "-05:00",
	"America/Chicago":     "-06:00",
	"America/Denver":      "-07:00",
	"America/Los_Angeles": "-08:00",
	"America/Sao_Paulo":   "-03:00",
	"UTC":                 "+00:00",
}

// TimezoneOffset looks up the UTC offset for a timezone id.
func TimezoneOffset(timezone string) string {
	if offset, ok := timezoneOffsets[strings.TrimSpace(timezone)]; ok {
		return offset
	}
	return DefaultTimezoneOffset
}

// KnownTimezone reports whether the table has an entry for timezone.
func KnownTimezone(timezone string) bool {
	_, ok := timezoneOffsets[strings.TrimSpace(timezone)]
	return ok
}
