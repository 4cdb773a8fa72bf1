// Package domain defines the persisted video record and the inbound content
// notification. Video is mapped with GORM (SQLite) and bson (MongoDB) so both
// record store backends share one shape.
package domain

import (
	"math"
	"time"
)

// FeedMain is the feed category tag of the single supported feed.
const FeedMain = "main"

// Notification is the inbound publication event delivered to the webhook.
// It is consumed once per request and never stored as-is.
type Notification struct {
	ID       string
	Body     string
	SentTime string // ISO-8601, trailing "Z" accepted
	State    string
	VideoURI string
	ThumbURI string
	PostURI  string
}

// Video is the metadata record written once per ingested notification.
//
// Fields:
//   - ID: caller-supplied unique key; a repeated ID overwrites the record.
//   - SentTime: publish time in seconds since the Unix epoch.
//   - PostURI: canonical link to the origin post.
//   - ThumbnailURI / VideoURI: public URIs of the stored assets.
//   - FeedType: partition of the (feed_type, sent_time) ordering index.
type Video struct {
	ID           string  `json:"id"            gorm:"type:varchar(255);primaryKey"                      bson:"_id"`
	Body         string  `json:"body"          gorm:"type:text;not null;default:''"                     bson:"body"`
	SentTime     float64 `json:"sent_time"     gorm:"not null;index:idx_feed_type_sent_time,priority:2" bson:"sent_time"`
	State        string  `json:"state"         gorm:"type:varchar(64);not null;default:''"              bson:"state"`
	PostURI      string  `json:"post_uri"      gorm:"type:text;not null;default:''"                     bson:"post_uri"`
	ThumbnailURI string  `json:"thumbnail_uri" gorm:"type:text;not null"                                bson:"thumbnail_uri"`
	VideoURI     string  `json:"video_uri"     gorm:"type:text;not null"                                bson:"video_uri"`
	FeedType     string  `json:"feed_type"     gorm:"type:varchar(32);not null;default:'main';index:idx_feed_type_sent_time,priority:1" bson:"feed_type"`
}

// TableName returns the default database table name for Video.
func (Video) TableName() string { return "videos" }

// PublishedAt converts SentTime back to a UTC time, keeping sub-second precision.
func (v Video) PublishedAt() time.Time {
	sec, frac := math.Modf(v.SentTime)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}

// EpochSeconds returns t as fractional seconds since the Unix epoch.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
