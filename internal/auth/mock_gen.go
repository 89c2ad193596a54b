package auth

//go:generate mockgen -typed -source=./permify.go -destination=../mocks/mock_relation_mirror.go -package=mocks RelationMirror
