// Package store contains GORM-backed SQLite models used by the facilitator.
//
// Database Structure (database file: facilitator.db):
//
//	facilitator.db
//	├── messages           keyed by message_hash
//	├── anchors            keyed by anchor_ga
//	├── gateways           keyed by gateway_ga
//	├── transactions       keyed by auto-increment id
//	├── requests           keyed by request_hash
//	└── contract_entities  keyed by (contract_address, entity_type)
//
// Optional columns are pointer typed. A nil pointer means "not set" and is
// never written over a stored value by a merge.
package store

import (
	"time"
)

// Message is the canonical record of one cross-chain stake or redeem message.
// It is created by whichever event for its hash is observed first and is
// never deleted.
type Message struct {
	MessageHash                  string            `gorm:"primaryKey" json:"message_hash"`
	Type                         *MessageType      `gorm:"type:text" json:"type,omitempty"`
	Direction                    *MessageDirection `gorm:"type:text" json:"direction,omitempty"`
	GatewayAddress               *string           `gorm:"index" json:"gateway_address,omitempty"`
	SourceStatus                 *MessageStatus    `gorm:"type:text;index" json:"source_status,omitempty"`
	TargetStatus                 *MessageStatus    `gorm:"type:text;index" json:"target_status,omitempty"`
	GasPrice                     *string           `json:"gas_price,omitempty"` // decimal wei
	GasLimit                     *string           `json:"gas_limit,omitempty"` // decimal
	Nonce                        *uint64           `json:"nonce,omitempty"`
	Sender                       *string           `gorm:"index" json:"sender,omitempty"`
	Secret                       *string           `json:"secret,omitempty"`
	HashLock                     *string           `json:"hash_lock,omitempty"`
	SourceDeclarationBlockHeight *uint64           `json:"source_declaration_block_height,omitempty"`
	CreatedAt                    time.Time         `json:"created_at"`
	UpdatedAt                    time.Time         `json:"updated_at"`
}

// Anchor tracks the latest block of the remote chain checkpointed by one
// anchor contract.
type Anchor struct {
	AnchorGA                string    `gorm:"primaryKey" json:"anchor_ga"`
	LastAnchoredBlockNumber uint64    `gorm:"not null" json:"last_anchored_block_number"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// Gateway tracks a gateway (or cogateway) contract and the highest remote
// block at which its counterpart has been proven.
type Gateway struct {
	GatewayGA                          string    `gorm:"primaryKey" json:"gateway_ga"`
	RemoteGA                           *string   `json:"remote_ga,omitempty"`
	Chain                              *string   `json:"chain,omitempty"`
	GatewayType                        *string   `json:"gateway_type,omitempty"` // "origin" or "auxiliary"
	AnchorGA                           *string   `json:"anchor_ga,omitempty"`
	TokenAddress                       *string   `json:"token_address,omitempty"`
	LastRemoteGatewayProvedBlockHeight *uint64   `json:"last_remote_gateway_proved_block_height,omitempty"`
	CreatedAt                          time.Time `json:"created_at"`
	UpdatedAt                          time.Time `json:"updated_at"`
}

// Transaction is a transaction queued for (or already) submitted to a chain.
// ID is assigned when the row is first persisted.
type Transaction struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	FromAddress *string   `json:"from_address,omitempty"`
	ToAddress   *string   `json:"to_address,omitempty"`
	EncodedData *string   `gorm:"type:text" json:"encoded_data,omitempty"`
	GasPrice    *string   `json:"gas_price,omitempty"`
	Gas         *string   `json:"gas,omitempty"`
	TxHash      *string   `gorm:"index" json:"tx_hash,omitempty"` // nil until submitted
	Nonce       *uint64   `json:"nonce,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Request is a stake or redeem request observed on the composer contract.
// MessageHash is a weak back-reference filled once the message is known.
type Request struct {
	RequestHash string       `gorm:"primaryKey" json:"request_hash"`
	RequestType *RequestType `gorm:"type:text" json:"request_type,omitempty"`
	Amount      *string      `json:"amount,omitempty"`
	Beneficiary *string      `json:"beneficiary,omitempty"`
	GasPrice    *string      `json:"gas_price,omitempty"`
	GasLimit    *string      `json:"gas_limit,omitempty"`
	Nonce       *uint64      `json:"nonce,omitempty"`
	Gateway     *string      `gorm:"index" json:"gateway,omitempty"`
	Sender      *string      `gorm:"index" json:"sender,omitempty"`
	SenderProxy *string      `json:"sender_proxy,omitempty"`
	BlockNumber *uint64      `json:"block_number,omitempty"`
	MessageHash *string      `gorm:"index" json:"message_hash,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ContractEntity is the high-water mark of event timestamps already handled
// for one (contract, entity type) pair.
type ContractEntity struct {
	ContractAddress string    `gorm:"primaryKey" json:"contract_address"`
	EntityType      string    `gorm:"primaryKey" json:"entity_type"`
	Timestamp       uint64    `gorm:"not null" json:"timestamp"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SchemaModels lists the structs to be auto-migrated into the database.
func SchemaModels() []any {
	return []any{
		&Message{},
		&Anchor{},
		&Gateway{},
		&Transaction{},
		&Request{},
		&ContractEntity{},
	}
}
