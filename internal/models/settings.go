package models

// Settings holds user preferences. DarkMode is stored for the client and
// never interpreted by the backend.
type Settings struct {
	DarkMode      bool `json:"darkMode"`
	Notifications bool `json:"notifications"`
	OfflineMode   bool `json:"offlineMode"`
}

// DefaultSettings returns the settings used when nothing has been saved yet.
func DefaultSettings() Settings {
	return Settings{
		DarkMode:      false,
		Notifications: true,
		OfflineMode:   false,
	}
}
