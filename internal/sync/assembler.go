// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sync

import (
	"time"

	"github.com/tomtom215/streamwatch/internal/models"
)

// StreamClass is the class name of viewer datapoints.
func StreamClass(prefix string) string {
	return prefix + ".viewers"
}

// ChatMessagesClass is the class name of per-video new comment counts.
func ChatMessagesClass(prefix string) string {
	return prefix + ".chat.messages"
}

// ChatCommentersClass is the class name of per-video distinct commenter counts.
func ChatCommentersClass(prefix string) string {
	return prefix + ".chat.commenters"
}

// Assemble builds the viewer datapoint of one stream. Labels follow
// models.StreamLabelKeys; user_name carries the login.
func Assemble(stream *models.Stream, categoryName string, tick time.Time, eventName, class string) models.Datapoint {
	return models.Datapoint{
		Timestamp: tick,
		Class:     class,
		Labels: []models.Label{
			{Key: models.LabelEventName, Value: eventName},
			{Key: models.LabelStreamID, Value: stream.ID},
			{Key: models.LabelGameID, Value: stream.GameID},
			{Key: models.LabelGameName, Value: categoryName},
			{Key: models.LabelUserID, Value: stream.UserID},
			{Key: models.LabelUserName, Value: stream.UserLogin},
		},
		Value: int64(stream.ViewerCount),
	}
}

// AssembleChat builds a chat statistic datapoint for one video.
func AssembleChat(videoID, channelID string, tick time.Time, eventName, class string, value int) models.Datapoint {
	return models.Datapoint{
		Timestamp: tick,
		Class:     class,
		Labels: []models.Label{
			{Key: models.LabelEventName, Value: eventName},
			{Key: models.LabelVideoID, Value: videoID},
			{Key: models.LabelChannelID, Value: channelID},
		},
		Value: int64(value),
	}
}
