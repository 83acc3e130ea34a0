package insights

// QueryKind names one of the four GraphQL operations the collector issues.
type QueryKind string

const (
	QueryIdentity     QueryKind = "Me"
	QueryTopTracks    QueryKind = "TopTracksByWindow"
	QueryTopCountries QueryKind = "TopCountriesByWindow"
	QueryTopCities    QueryKind = "TopCitiesByWindow"
)

// DefaultWindow 默认统计窗口：最近30天
const DefaultWindow = "DAYS_30"

// metricPlays 所有查询都按播放量统计
const metricPlays = "PLAYS"

const queryMe = `
query Me {
  me {
    avatarUrl
    city
    country
    createdAt
    features
    followersCount
    isPro
    permalink
    permalinkUrl
    urn
    username
  }
}
`

const queryTopTracks = `
query TopTracksByWindow($metric: MetricType!, $windowInput: TimeWindowInput!) {
  topTracksByWindow(metric: $metric, windowInput: $windowInput) {
    count
    track {
      urn
      title
      artworkUrl
      permalink
      permalinkUrl
      createdAt
    }
  }
}
`

const queryTopCountries = `
query TopCountriesByWindow($metric: MetricType!, $windowInput: TimeWindowInput!, $trackUrn: String) {
  topCountriesByWindow(metric: $metric, windowInput: $windowInput, trackUrn: $trackUrn) {
    count
    country {
      name
      countryCode
    }
  }
}
`

const queryTopCities = `
query TopCitiesByWindow($metric: MetricType!, $windowInput: TimeWindowInput!, $trackUrn: String) {
  topCitiesByWindow(metric: $metric, windowInput: $windowInput, trackUrn: $trackUrn) {
    count
    city {
      name
      country {
        name
        countryCode
      }
    }
  }
}
`

func (k QueryKind) document() string {
	switch k {
	case QueryIdentity:
		return queryMe
	case QueryTopTracks:
		return queryTopTracks
	case QueryTopCountries:
		return queryTopCountries
	case QueryTopCities:
		return queryTopCities
	}
	return ""
}

type windowInput struct {
	Timewindow string `json:"timewindow"`
	Limit      int    `json:"limit"`
}

type tracksVariables struct {
	Metric      string      `json:"metric"`
	WindowInput windowInput `json:"windowInput"`
}

// geoVariables always sends trackUrn; null means account-wide.
type geoVariables struct {
	Metric      string      `json:"metric"`
	WindowInput windowInput `json:"windowInput"`
	TrackURN    *string     `json:"trackUrn"`
}
