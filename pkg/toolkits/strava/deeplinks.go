package strava

import "fmt"

// Deeplinks point at Strava's web and native app views so clients can
// surface clickable references alongside raw data.
type deeplinks struct {
	WebURL string `json:"web_url"`
	AppURL string `json:"app_url,omitempty"`
}

func activityLinks(id int64) deeplinks {
	return deeplinks{
		WebURL: fmt.Sprintf("https://www.strava.com/activities/%d", id),
	}
}

func segmentLinks(id int64) deeplinks {
	return deeplinks{
		WebURL: fmt.Sprintf("https://www.strava.com/segments/%d", id),
		AppURL: fmt.Sprintf("strava://segments/%d", id),
	}
}

func routeLinks(id int64) deeplinks {
	return deeplinks{
		WebURL: fmt.Sprintf("https://www.strava.com/routes/%d", id),
		AppURL: fmt.Sprintf("strava://routes/%d", id),
	}
}

func clubLinks(id int64) deeplinks {
	return deeplinks{
		WebURL: fmt.Sprintf("https://www.strava.com/clubs/%d", id),
		AppURL: fmt.Sprintf("strava://clubs/%d", id),
	}
}

func athleteLinks(id int64) deeplinks {
	return deeplinks{
		WebURL: fmt.Sprintf("https://www.strava.com/athletes/%d", id),
	}
}
