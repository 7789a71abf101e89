package districtmapping

// UnassignedDistrictID is the reserved district that holds every geounit not
// yet assigned to a real district.
const UnassignedDistrictID = 0

// District is one row of the assignable-district list. The server owns the
// authoritative copy; this struct is a transient rendering of one response and
// must be refetched rather than cached.
type District struct {
	ID        int    `json:"district_id"`
	LongLabel string `json:"long_label"`
	Version   int    `json:"version"`
	Locked    bool   `json:"is_locked"`
}

// AssignResult is the outcome of adding geounits to a district.
// Updated is false when the request succeeded but no district geometry
// actually changed (e.g. the units were already assigned there).
type AssignResult struct {
	Updated bool
	Version int
	Edited  bool
}

// VersionResult is the outcome of an operation that may advance the plan
// version and carries an optional server message.
type VersionResult struct {
	Version int
	Message string
}

// DistrictList is one response of the assignable-district listing.
type DistrictList struct {
	Districts []District
	CanUndo   bool
	Available int
}

// Split describes a geounit whose geometry straddles more than one district
// at the queried geolevel.
type Split struct {
	UnitID    string `json:"geounit_id"`
	Name      string `json:"name"`
	Districts []int  `json:"districts"`
}

// envelope is the common response wrapper used by every districtmapping
// endpoint. Redirect, when present, wins over every other field.
type envelope struct {
	Success   bool       `json:"success"`
	Redirect  string     `json:"redirect,omitempty"`
	Message   string     `json:"message,omitempty"`
	Version   int        `json:"version,omitempty"`
	Updated   bool       `json:"updated,omitempty"`
	Edited    bool       `json:"edited,omitempty"`
	Districts []District `json:"districts,omitempty"`
	CanUndo   bool       `json:"canUndo,omitempty"`
	Available int        `json:"available,omitempty"`
	Splits    []Split    `json:"splits,omitempty"`
}
