// Package queue defines message payloads exchanged over the message broker
// and the consumer that applies them.
package queue

import "time"

// BlogViewedQueue carries one message per public read of a blog post.
const BlogViewedQueue = "blog.viewed"

// BlogViewedEvent is published when a reader opens a post.  The consumer
// turns it into a view counter increment so the read path never waits on
// the database write.
type BlogViewedEvent struct {
    PostID   int64     `json:"postId"`
    ViewedAt time.Time `json:"viewedAt"`
}
