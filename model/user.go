package model

// User 账号身份信息，原样保存 Me 查询的结果
type User struct {
	AvatarURL      string      `json:"avatarUrl"`
	City           string      `json:"city"`
	Country        string      `json:"country"`
	CreatedAt      string      `json:"createdAt"`
	Features       interface{} `json:"features,omitempty"`
	FollowersCount int64       `json:"followersCount"`
	IsPro          bool        `json:"isPro"`
	Permalink      string      `json:"permalink"`
	PermalinkURL   string      `json:"permalinkUrl"`
	URN            string      `json:"urn"`
	Username       string      `json:"username"`
}

// DisplayName falls back to "unknown" when the identity is missing.
func (u *User) DisplayName() string {
	if u == nil || u.Username == "" {
		return "unknown"
	}
	return u.Username
}
