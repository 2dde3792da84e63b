package upstream

// Indicator is a single raw threat observation (IoC) as served by the
// threat-feed backend. The service never mutates or persists these.
type Indicator struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Value        string   `json:"value"`
	Source       string   `json:"source"`
	Severity     string   `json:"severity"`
	Confidence   int      `json:"confidence"`
	DateDetected string   `json:"dateDetected"`
	Tags         []string `json:"tags"`
}

// TrendPoint is one sample of a dated activity series.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CountryCount is one row of the top-countries ranking.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// MapPoint is one geolocated attack aggregate for the world map.
type MapPoint struct {
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Value     int     `json:"value"`
}

// MalwareFamily is one malware-families aggregation bucket. Only the
// backend's `_id` field (the family name) is consumed.
type MalwareFamily struct {
	ID string `json:"_id"`
}

// UserProfile identifies the authenticated account.
type UserProfile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company"`
	Email     string `json:"email"`
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterForm is the registration request body.
type RegisterForm struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// AuthResult is the success payload of login and register.
type AuthResult struct {
	User  *UserProfile `json:"user"`
	Token string       `json:"token"`
}

// Report is one generated intelligence report record.
type Report struct {
	ID        string `json:"_id"`
	Title     string `json:"title"`
	Period    string `json:"period"`
	CreatedAt string `json:"createdAt"`
}

// ReportList is the `{success, reports}` envelope of the reports listing.
type ReportList struct {
	Success bool     `json:"success"`
	Reports []Report `json:"reports"`
}

// ReportAck is the `{success, ...}` envelope of generate/delete calls.
type ReportAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
