package discovery

// BrowserConfig configures a host browser.
type BrowserConfig struct {
	// Interface restricts browsing to a named network interface.
	// Empty means all interfaces.
	Interface string
}

// MatchesApp reports whether the service advertises the given
// application name.
func (s *HostService) MatchesApp(appName string) bool {
	return appName == "" || s.AppName == appName
}

// MatchesFingerprint reports whether the service advertises the given
// certificate fingerprint.
func (s *HostService) MatchesFingerprint(fingerprint string) bool {
	return fingerprint == "" || s.Fingerprint == fingerprint
}
