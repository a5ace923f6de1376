package model

import (
	"fmt"
	"sort"
	"sync"
)

// ChannelMembers is the set of user ids logged in to a channel. The
// handlers add a user at login and remove it on disconnect; entering a room
// does not remove it, so the set includes room occupants. It's kept
// separate from room occupancy so a channel can broadcast a roster without
// touching any room's lock.
type ChannelMembers struct {
	mu      sync.RWMutex
	userIDs map[uint32]struct{}
}

func newChannelMembers() *ChannelMembers {
	return &ChannelMembers{userIDs: make(map[uint32]struct{})}
}

func (m *ChannelMembers) Add(userID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userIDs[userID] = struct{}{}
}

func (m *ChannelMembers) Remove(userID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.userIDs, userID)
}

// Snapshot returns the current member ids in ascending order.
func (m *ChannelMembers) Snapshot() []uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]uint32, 0, len(m.userIDs))
	for id := range m.userIDs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Channel is the unit of room visibility and broadcast within a
// ChannelServer: it holds the rooms created in it, keyed by an id unique
// within the channel, and the roster of connections in its lobby.
type Channel struct {
	Index int
	Name  string

	server *ChannelServer

	mu         sync.RWMutex
	rooms      map[int]*Room
	nextRoomID int
	freeIDs    []int

	Members *ChannelMembers

	capacity int
}

func newChannel(server *ChannelServer, index int, name string, roomCapacity int) *Channel {
	return &Channel{
		Index:      index,
		Name:       name,
		server:     server,
		rooms:      make(map[int]*Room),
		nextRoomID: 1,
		Members:    newChannelMembers(),
		capacity:   roomCapacity,
	}
}

func (c *Channel) Server() *ChannelServer { return c.server }

// Rooms returns the channel's current rooms in ascending id order.
func (c *Channel) Rooms() []*Room {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]int, 0, len(c.rooms))
	for id := range c.rooms {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]*Room, len(ids))
	for i, id := range ids {
		out[i] = c.rooms[id]
	}
	return out
}

// Room looks up a room by id.
func (c *Channel) Room(id int) (*Room, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rooms[id]
	return r, ok
}

// CreateRoom assigns a fresh id (reused from a closed room if one is
// available) and creates hostUserID as its sole occupant.
func (c *Channel) CreateRoom(hostUserID uint32, settings Settings) *Room {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.allocateRoomIDLocked()
	room := newRoom(id, c, c.capacity, hostUserID, settings)
	c.rooms[id] = room
	return room
}

func (c *Channel) allocateRoomIDLocked() int {
	if n := len(c.freeIDs); n > 0 {
		id := c.freeIDs[n-1]
		c.freeIDs = c.freeIDs[:n-1]
		return id
	}
	id := c.nextRoomID
	c.nextRoomID++
	return id
}

// CloseRoom removes a room from the directory and frees its id for reuse.
// Callers are expected to have already driven the room itself to Closed.
func (c *Channel) CloseRoom(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.rooms[id]; !ok {
		return
	}
	delete(c.rooms, id)
	c.freeIDs = append(c.freeIDs, id)
}

// ChannelServer is a fixed, configured grouping of channels, addressed by
// index from the top-level Directory.
type ChannelServer struct {
	Index int
	Name  string

	channels []*Channel
}

func newChannelServer(index int, name string, channelCount, roomCapacity int) *ChannelServer {
	cs := &ChannelServer{Index: index, Name: name}
	cs.channels = make([]*Channel, channelCount)
	for i := 0; i < channelCount; i++ {
		cs.channels[i] = newChannel(cs, i, fmt.Sprintf("%s-%d", name, i+1), roomCapacity)
	}
	return cs
}

// GetChannelByIndex returns the channel at idx, bounded at startup.
func (cs *ChannelServer) GetChannelByIndex(idx int) (*Channel, error) {
	if idx < 0 || idx >= len(cs.channels) {
		return nil, fmt.Errorf("%w: channel index %d", ErrNotFound, idx)
	}
	return cs.channels[idx], nil
}

// Channels returns every channel on this server, in index order.
func (cs *ChannelServer) Channels() []*Channel {
	out := make([]*Channel, len(cs.channels))
	copy(out, cs.channels)
	return out
}

// Directory is the top-level, read-mostly-after-init tree of channel
// servers configured at startup.
type Directory struct {
	servers []*ChannelServer
}

// NewDirectory builds serverCount channel servers, each with
// channelsPerServer channels of the given room capacity. The shape is
// fixed for the lifetime of the process, per the "bounded at startup"
// directory contract.
func NewDirectory(serverCount, channelsPerServer, roomCapacity int) *Directory {
	d := &Directory{servers: make([]*ChannelServer, serverCount)}
	for i := 0; i < serverCount; i++ {
		d.servers[i] = newChannelServer(i, fmt.Sprintf("CHANNEL%02d", i+1), channelsPerServer, roomCapacity)
	}
	return d
}

// GetServerByIndex returns the channel server at idx, bounded at startup.
func (d *Directory) GetServerByIndex(idx int) (*ChannelServer, error) {
	if idx < 0 || idx >= len(d.servers) {
		return nil, fmt.Errorf("%w: channel server index %d", ErrNotFound, idx)
	}
	return d.servers[idx], nil
}

// Servers returns every configured channel server, in index order.
func (d *Directory) Servers() []*ChannelServer {
	out := make([]*ChannelServer, len(d.servers))
	copy(out, d.servers)
	return out
}
