package graph

import (
	"context"

	"github.com/graph-gophers/graphql-go"

	"github.com/dukerupert/todochat/internal/model"
)

func (r *Resolver) ChatRooms(ctx context.Context) ([]*ChatRoomResolver, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	rooms, err := r.chat.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	return r.roomResolvers(rooms), nil
}

func (r *Resolver) ChatRoom(ctx context.Context, args idArgs) (*ChatRoomResolver, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	room, err := r.room(ctx, args.ID)
	if err != nil {
		return nil, err
	}
	return &ChatRoomResolver{r: r, room: room}, nil
}

type roomArgs struct {
	RoomID graphql.ID
}

// Messages lists a room's messages, oldest first.
func (r *Resolver) Messages(ctx context.Context, args roomArgs) ([]*MessageResolver, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	room, err := r.room(ctx, args.RoomID)
	if err != nil {
		return nil, err
	}
	msgs, err := r.chat.ListMessages(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	return r.messageResolvers(msgs), nil
}

type createChatRoomArgs struct {
	Name string
}

func (r *Resolver) CreateChatRoom(ctx context.Context, args createChatRoomArgs) (*ChatRoomResolver, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	room, err := r.chat.CreateRoom(ctx, args.Name)
	if err != nil {
		return nil, err
	}
	return &ChatRoomResolver{r: r, room: room}, nil
}

type sendMessageArgs struct {
	Content string
	RoomID  graphql.ID
}

// SendMessage stores the message and then publishes it to the room's
// subscribers.
func (r *Resolver) SendMessage(ctx context.Context, args sendMessageArgs) (*MessageResolver, error) {
	u, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	room, err := r.room(ctx, args.RoomID)
	if err != nil {
		return nil, err
	}
	msg, err := r.chat.CreateMessage(ctx, u.ID, room.ID, args.Content)
	if err != nil {
		return nil, err
	}
	r.broker.Publish(msg)
	return &MessageResolver{r: r, m: msg}, nil
}

// NewMessage streams messages posted to a room after the subscription starts.
// The stream ends when ctx is cancelled.
func (r *Resolver) NewMessage(ctx context.Context, args roomArgs) (<-chan *MessageResolver, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	room, err := r.room(ctx, args.RoomID)
	if err != nil {
		return nil, err
	}

	sub := r.broker.Subscribe(room.ID)
	out := make(chan *MessageResolver)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.C():
				if !ok {
					return
				}
				select {
				case out <- &MessageResolver{r: r, m: msg}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *Resolver) room(ctx context.Context, id graphql.ID) (*model.ChatRoom, error) {
	roomID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	room, err := r.chat.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, notFound("Chat room")
	}
	return room, nil
}
