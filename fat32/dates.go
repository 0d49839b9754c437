package fat32

import "time"

// ParseDate reads a FAT directory-entry date stamp: bits 0-4 day of month,
// bits 5-8 month (1=January), bits 9-15 years since 1980. A 0 day or month
// is defined as invalid by the FAT spec, reported here as time.Time{} so
// callers can use IsZero().
func ParseDate(input uint16) time.Time {
	day := input & 0x1F
	month := input & 0x1E0 >> 5
	year := input & 0xFE00 >> 9

	if day == 0 || month == 0 {
		return time.Time{}
	}

	return time.Date(1980+int(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC)
}

// ParseTime reads a FAT directory-entry time stamp with 2-second
// granularity: bits 0-4 two-second count, bits 5-10 minutes, bits 11-15
// hours. Returns a time.Time dated January 1, year 1 so IsZero() holds for
// midnight.
func ParseTime(input uint16) time.Time {
	seconds := int(input&0x1F) * 2
	minutes := int(input & 0x7E0 >> 5)
	hours := int(input & 0xF800 >> 11)

	result := time.Date(1, 1, 1, hours, minutes, seconds, 0, time.UTC)
	if result.Day() > 1 {
		return time.Date(1, 1, 1, 23, 59, 59, 0, time.UTC)
	}

	return result
}

// ParseCreateTime combines CrtDate, CrtTime and the CrtTimeTenth
// sub-second field (counted in 10ms units, 0-199, the extra range covering
// the odd second CrtTime's 2-second granularity can't represent) into a
// single timestamp with millisecond precision.
func ParseCreateTime(date, clock uint16, tenths byte) time.Time {
	d := ParseDate(date)
	t := ParseTime(clock)
	if d.IsZero() {
		return time.Time{}
	}

	millis := int(tenths) * 10
	extraSecond := millis / 1000
	millis %= 1000

	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second()+extraSecond, millis*1e6, time.UTC)
}
