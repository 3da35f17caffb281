package bot

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// StatusCode extracts the HTTP status from a discordgo REST error.
func StatusCode(err error) (int, bool) {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode, true
	}
	return 0, false
}

func IsForbidden(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusForbidden
}

func IsNotFound(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusNotFound
}
