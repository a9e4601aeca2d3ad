package azuread

import "net/url"

// fallbackAvatarBase is the generated-avatar service used when the provider
// has no photo for the user.
const fallbackAvatarBase = "https://ui-avatars.com/api/"

// FallbackAvatarURL derives a placeholder avatar URL from the display name.
// Pure: the same name always yields the same URL, and an empty name maps to
// a generic placeholder so the result is always a valid URL.
func FallbackAvatarURL(displayName string) string {
	if displayName == "" {
		displayName = "Knowledge Base"
	}
	q := url.Values{}
	q.Set("name", displayName)
	q.Set("background", "random")
	return fallbackAvatarBase + "?" + q.Encode()
}
