package main

import "time"

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func formatTime(value *time.Time) string {
	if value == nil || value.IsZero() {
		return "never"
	}
	return value.Local().Format("2006-01-02 15:04:05")
}
