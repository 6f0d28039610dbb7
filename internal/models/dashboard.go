package models

import (
	"fmt"
	"slices"
)

// Dashboard option labels, in code order
var (
	Seasons  = []string{"Spring", "Summer", "Fall", "Winter"}
	Years    = []int{2011, 2012}
	Months   = []string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}
	Weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	Weathers = []string{
		"Clear, Few clouds",
		"Mist, Cloudy, Mist",
		"Light Rain, Thunderstorm, Scattered clouds",
		"Heavy Rain, Thunderstorm",
	}
	YesNo = []string{"No", "Yes"}
)

var weatherImpact = map[int]string{1: "Excellent", 2: "Good", 3: "Fair", 4: "Poor"}

// DefaultDashboardForm returns the values the form opens with
func DefaultDashboardForm() DashboardForm {
	return DashboardForm{
		Season:     Seasons[0],
		Year:       Years[0],
		Month:      Months[0],
		Weekday:    Weekdays[0],
		Hour:       15,
		Weather:    Weathers[0],
		Temp:       0.5,
		Atemp:      0.5,
		Hum:        0.5,
		Windspeed:  0.2,
		Holiday:    "No",
		Workingday: "No",
	}
}

// Record maps the form labels to dataset codes: season, month and weather by
// position starting at 1, weekday by position starting at 0, 2011 as year 0.
func (f DashboardForm) Record() (map[string]interface{}, error) {
	season, err := labelIndex("season", Seasons, f.Season)
	if err != nil {
		return nil, err
	}
	month, err := labelIndex("month", Months, f.Month)
	if err != nil {
		return nil, err
	}
	weekday, err := labelIndex("weekday", Weekdays, f.Weekday)
	if err != nil {
		return nil, err
	}
	weather, err := labelIndex("weather", Weathers, f.Weather)
	if err != nil {
		return nil, err
	}

	yr := 1
	if f.Year == Years[0] {
		yr = 0
	}

	return map[string]interface{}{
		"season":     season + 1,
		"yr":         yr,
		"mnth":       month + 1,
		"holiday":    yesToInt(f.Holiday),
		"weekday":    weekday,
		"workingday": yesToInt(f.Workingday),
		"weathersit": weather + 1,
		"temp":       f.Temp,
		"atemp":      f.Atemp,
		"hum":        f.Hum,
		"windspeed":  f.Windspeed,
		"hr":         f.Hour,
	}, nil
}

// Insight is one labelled value shown next to a dashboard prediction
type Insight struct {
	Label string
	Value string
	Help  string
}

// Insights summarizes the conditions of a submitted form
func (f DashboardForm) Insights() []Insight {
	weather := "Unknown"
	if i := slices.Index(Weathers, f.Weather); i >= 0 {
		weather = weatherImpact[i+1]
	}

	timeImpact := "Low"
	switch {
	case (f.Hour >= 7 && f.Hour <= 9) || (f.Hour >= 17 && f.Hour <= 19):
		timeImpact = "Peak"
	case f.Hour >= 10 && f.Hour <= 16:
		timeImpact = "High"
	}

	dayType := "Weekend"
	if f.Workingday == "Yes" {
		dayType = "Weekday"
	}

	return []Insight{
		{"Temperature Impact", fmt.Sprintf("%.2f", f.Temp), "Higher temperatures generally increase rentals"},
		{"Humidity Level", fmt.Sprintf("%.2f", f.Hum), "Lower humidity is better for cycling"},
		{"Weather Impact", weather, "Weather conditions significantly affect demand"},
		{"Wind Conditions", fmt.Sprintf("%.2f", f.Windspeed), "Lower wind speed is preferred"},
		{"Time Impact", timeImpact, "Rush hours and daytime see higher demand"},
		{"Day Type", dayType, "Weekend vs weekday affects rental patterns"},
	}
}

func labelIndex(field string, labels []string, value string) (int, error) {
	i := slices.Index(labels, value)
	if i < 0 {
		return 0, fmt.Errorf("unknown %s %q", field, value)
	}
	return i, nil
}

func yesToInt(v string) int {
	if v == "Yes" {
		return 1
	}
	return 0
}
