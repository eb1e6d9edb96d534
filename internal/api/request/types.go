package request

// CreateGuestRequest is the request body for creating a guest player
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateLobbyRequest is the request body for creating a lobby
type CreateLobbyRequest struct {
	Mode      string `json:"mode"`
	BoardSize int    `json:"board_size"`
}

// PlaceShipRequest places one ship. Length 0 means the longest ship left.
type PlaceShipRequest struct {
	Cell        string `json:"cell"`
	Orientation string `json:"orientation"`
	Length      int    `json:"length,omitempty"`
}

// ShotRequest is the request body for a shot or a power shot
type ShotRequest struct {
	Cell string `json:"cell"`
}
