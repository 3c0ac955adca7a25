package handler

import "fmt"

func formatUploadLimit(bytes int64) string {
	const mb = int64(1024 * 1024)
	if bytes <= 0 {
		return "0MB"
	}
	value := bytes / mb
	if value < 1 {
		value = 1
	}
	return fmt.Sprintf("%dMB", value)
}
