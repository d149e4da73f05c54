package models

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// Payload содержит доменные поля записи. Для ядра синхронизации непрозрачен.
type Payload map[string]string

// Ключи payload для записи о маркировке телёнка
const (
	PayloadVasaNumber = "vasaNumber"
	PayloadEmoNumber  = "emoNumber"
	PayloadNotes      = "notes"
)

// Entry представляет append-only запись, созданную участником группы.
// ID назначается при создании и никогда не переиспользуется.
// Synced=true означает, что хост подтвердил получение записи.
type Entry struct {
	CreatedAt   time.Time `json:"createdAt"`   // CreatedAt время создания записи
	UpdatedAt   time.Time `json:"updatedAt"`   // UpdatedAt время последнего изменения
	Payload     Payload   `json:"payload"`     // Payload доменные поля (vasaNumber, emoNumber, notes)
	ID          string    `json:"id"`          // ID уникальный идентификатор записи (UUID)
	GroupID     string    `json:"groupId"`     // GroupID группа, к которой относится запись
	CreatedBy   string    `json:"createdBy"`   // CreatedBy идентификатор автора
	CreatorName string    `json:"creatorName"` // CreatorName имя автора
	Synced      bool      `json:"synced"`      // Synced подтверждена ли запись хостом
}

// NewEntry creates an unsynced entry with a fresh ID.
func NewEntry(groupID, createdBy, creatorName string, payload Payload) *Entry {
	now := time.Now().UTC()
	return &Entry{
		ID:          uuid.New().String(),
		GroupID:     groupID,
		CreatedBy:   createdBy,
		CreatorName: creatorName,
		Payload:     maps.Clone(payload),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkSynced помечает запись как подтверждённую хостом
func (e *Entry) MarkSynced() {
	e.Synced = true
	e.UpdatedAt = time.Now().UTC()
}

// Update заменяет доменные поля записи. Запись снова попадает
// в очередь на синхронизацию, поэтому Synced сбрасывается.
func (e *Entry) Update(payload Payload) {
	if e.Payload == nil {
		e.Payload = make(Payload, len(payload))
	}
	maps.Copy(e.Payload, payload)
	e.Synced = false
	e.UpdatedAt = time.Now().UTC()
}

// Clone создает глубокую копию записи
func (e *Entry) Clone() *Entry {
	c := *e
	c.Payload = maps.Clone(e.Payload)
	return &c
}

// Marking returns the typed calf marking view of the payload.
func (e *Entry) Marking() Marking {
	return Marking{
		VasaNumber: e.Payload[PayloadVasaNumber],
		EmoNumber:  e.Payload[PayloadEmoNumber],
		Notes:      e.Payload[PayloadNotes],
	}
}
