package models

import "strings"

// EntityType classifies a mentioned actor
type EntityType string

const (
	EntityPerson       EntityType = "PERSON"
	EntityOrganization EntityType = "ORGANIZATION"
)

// ParseEntityType maps a free-form model value; anything but PERSON is an organization
func ParseEntityType(s string) EntityType {
	if strings.ToUpper(strings.TrimSpace(s)) == string(EntityPerson) {
		return EntityPerson
	}
	return EntityOrganization
}

// Sentiment is the tone a post takes towards an entity
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

// ParseSentiment maps a free-form model value, defaulting to NEUTRAL
func ParseSentiment(s string) Sentiment {
	switch Sentiment(strings.ToUpper(strings.TrimSpace(s))) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// PostScope tells how many entities a post is about
type PostScope string

const (
	ScopeSingleEntity PostScope = "SINGLE_ENTITY"
	ScopeMultiEntity  PostScope = "MULTI_ENTITY"
	ScopePlatform     PostScope = "PLATFORM"
)

// ScopeFor derives the scope of a synthesized post from its extracted entity count
func ScopeFor(entityCount int) PostScope {
	if entityCount > 1 {
		return ScopeMultiEntity
	}
	return ScopeSingleEntity
}
