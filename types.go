package main

// ServerInfo describes a running server as shown in the startup banner.
type ServerInfo struct {
	URL          string `json:"url"`
	Port         int    `json:"port"`
	LocalIP      string `json:"localIP"`
	SharedFolder string `json:"sharedFolder"`
}
