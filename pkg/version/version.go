package version

// Version is the current version of the passroast server
const Version = "0.0.12"

// UserAgent returns the User-Agent string for outbound HTTP requests
func UserAgent() string {
	return "passroast/" + Version
}

// ServerHeader returns the Server header value for HTTP responses
func ServerHeader() string {
	return "passroast/" + Version
}
