package strava

// Athlete is the authenticated athlete's profile (summary or detailed
// representation depending on the endpoint).
type Athlete struct {
	ID            int64   `json:"id"`
	Username      string  `json:"username,omitempty"`
	Firstname     string  `json:"firstname,omitempty"`
	Lastname      string  `json:"lastname,omitempty"`
	City          string  `json:"city,omitempty"`
	State         string  `json:"state,omitempty"`
	Country       string  `json:"country,omitempty"`
	Sex           string  `json:"sex,omitempty"`
	Premium       bool    `json:"premium,omitempty"`
	CreatedAt     string  `json:"created_at,omitempty"`
	Weight        float64 `json:"weight,omitempty"`
	ProfileMedium string  `json:"profile_medium,omitempty"`
	Admin         bool    `json:"admin,omitempty"`
	Owner         bool    `json:"owner,omitempty"`
}

// ActivityTotals aggregates distance/time for a group of activities.
type ActivityTotals struct {
	Count         int     `json:"count"`
	Distance      float64 `json:"distance"`
	MovingTime    int64   `json:"moving_time"`
	ElapsedTime   int64   `json:"elapsed_time"`
	ElevationGain float64 `json:"elevation_gain"`
}

// AthleteStats holds recent (last 4 weeks), year-to-date, and all-time totals.
type AthleteStats struct {
	RecentRideTotals ActivityTotals `json:"recent_ride_totals"`
	RecentRunTotals  ActivityTotals `json:"recent_run_totals"`
	RecentSwimTotals ActivityTotals `json:"recent_swim_totals"`
	YTDRideTotals    ActivityTotals `json:"ytd_ride_totals"`
	YTDRunTotals     ActivityTotals `json:"ytd_run_totals"`
	YTDSwimTotals    ActivityTotals `json:"ytd_swim_totals"`
	AllRideTotals    ActivityTotals `json:"all_ride_totals"`
	AllRunTotals     ActivityTotals `json:"all_run_totals"`
	AllSwimTotals    ActivityTotals `json:"all_swim_totals"`
}

// PolylineMap is the encoded map attached to activities, routes, and segments.
type PolylineMap struct {
	ID              string `json:"id,omitempty"`
	Polyline        string `json:"polyline,omitempty"`
	SummaryPolyline string `json:"summary_polyline,omitempty"`
}

// Activity is a Strava activity. Detailed fields are empty on summary
// representations.
type Activity struct {
	ID                 int64        `json:"id"`
	Name               string       `json:"name"`
	Type               string       `json:"type,omitempty"`
	SportType          string       `json:"sport_type,omitempty"`
	Description        string       `json:"description,omitempty"`
	Distance           float64      `json:"distance"`
	MovingTime         int64        `json:"moving_time"`
	ElapsedTime        int64        `json:"elapsed_time"`
	TotalElevationGain float64      `json:"total_elevation_gain"`
	StartDate          string       `json:"start_date,omitempty"`
	StartDateLocal     string       `json:"start_date_local,omitempty"`
	Timezone           string       `json:"timezone,omitempty"`
	AverageSpeed       float64      `json:"average_speed,omitempty"`
	MaxSpeed           float64      `json:"max_speed,omitempty"`
	AverageHeartrate   float64      `json:"average_heartrate,omitempty"`
	MaxHeartrate       float64      `json:"max_heartrate,omitempty"`
	KudosCount         int          `json:"kudos_count,omitempty"`
	CommentCount       int          `json:"comment_count,omitempty"`
	Athlete            *Athlete     `json:"athlete,omitempty"`
	Map                *PolylineMap `json:"map,omitempty"`
	GearID             string       `json:"gear_id,omitempty"`
	Private            bool         `json:"private,omitempty"`
}

// ExploreSegment is a segment returned by the segment explorer.
type ExploreSegment struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	ClimbCategory  int       `json:"climb_category"`
	AvgGrade       float64   `json:"avg_grade"`
	StartLatLng    []float64 `json:"start_latlng,omitempty"`
	EndLatLng      []float64 `json:"end_latlng,omitempty"`
	ElevDifference float64   `json:"elev_difference"`
	Distance       float64   `json:"distance"`
}

// exploreResponse wraps the explorer endpoint's payload.
type exploreResponse struct {
	Segments []ExploreSegment `json:"segments"`
}

// Segment is a detailed or summary segment representation.
type Segment struct {
	ID                 int64        `json:"id"`
	Name               string       `json:"name"`
	ActivityType       string       `json:"activity_type,omitempty"`
	Distance           float64      `json:"distance"`
	AverageGrade       float64      `json:"average_grade"`
	MaximumGrade       float64      `json:"maximum_grade,omitempty"`
	ElevationHigh      float64      `json:"elevation_high,omitempty"`
	ElevationLow       float64      `json:"elevation_low,omitempty"`
	TotalElevationGain float64      `json:"total_elevation_gain,omitempty"`
	ClimbCategory      int          `json:"climb_category"`
	City               string       `json:"city,omitempty"`
	State              string       `json:"state,omitempty"`
	Country            string       `json:"country,omitempty"`
	StartLatLng        []float64    `json:"start_latlng,omitempty"`
	EndLatLng          []float64    `json:"end_latlng,omitempty"`
	EffortCount        int          `json:"effort_count,omitempty"`
	AthleteCount       int          `json:"athlete_count,omitempty"`
	StarCount          int          `json:"star_count,omitempty"`
	Map                *PolylineMap `json:"map,omitempty"`
}

// Route is an athlete-created route.
type Route struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	Distance      float64      `json:"distance"`
	ElevationGain float64      `json:"elevation_gain"`
	Type          int          `json:"type,omitempty"`
	SubType       int          `json:"sub_type,omitempty"`
	Starred       bool         `json:"starred,omitempty"`
	Private       bool         `json:"private,omitempty"`
	Timestamp     int64        `json:"timestamp,omitempty"`
	Map           *PolylineMap `json:"map,omitempty"`
	Segments      []Segment    `json:"segments,omitempty"`
}

// Club is a summary or detailed club representation.
type Club struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	SportType     string `json:"sport_type,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	Country       string `json:"country,omitempty"`
	MemberCount   int    `json:"member_count,omitempty"`
	Private       bool   `json:"private,omitempty"`
	Verified      bool   `json:"verified,omitempty"`
	ProfileMedium string `json:"profile_medium,omitempty"`
	CoverPhoto    string `json:"cover_photo,omitempty"`
}

// Comment is a comment left on an activity.
type Comment struct {
	ID        int64    `json:"id"`
	Text      string   `json:"text"`
	CreatedAt string   `json:"created_at,omitempty"`
	Athlete   *Athlete `json:"athlete,omitempty"`
}

// SegmentEffort is one effort on a segment; used for KOM/CR listings.
type SegmentEffort struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	ElapsedTime int64         `json:"elapsed_time"`
	MovingTime  int64         `json:"moving_time"`
	StartDate   string        `json:"start_date,omitempty"`
	Distance    float64       `json:"distance"`
	Segment     *Segment      `json:"segment,omitempty"`
	Activity    *ActivityMeta `json:"activity,omitempty"`
}

// ActivityMeta is the minimal activity reference attached to efforts.
type ActivityMeta struct {
	ID int64 `json:"id"`
}

// Bounds is a lat/lng bounding box [SW, NE] for the segment explorer.
type Bounds struct {
	SWLat float64
	SWLng float64
	NELat float64
	NELng float64
}
