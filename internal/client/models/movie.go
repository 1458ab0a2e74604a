package models

// Director describes who directed a movie. Everything but Name is optional.
type Director struct {
	Name  string `json:"name"`
	Bio   string `json:"bio,omitempty"`
	Birth string `json:"birth,omitempty"`
	Death string `json:"death,omitempty"`
}

// Genre is a movie genre.
type Genre struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Movie is a catalog entry. The client never mutates one.
type Movie struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Director    Director `json:"director"`
	Genre       Genre    `json:"genre"`
	ImagePath   string   `json:"image_path"`
	Featured    bool     `json:"featured,omitempty"`
}
